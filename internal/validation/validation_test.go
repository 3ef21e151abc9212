package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNameRejects(t *testing.T) {
	cases := map[string]error{
		"":                      ErrNameEmpty,
		"   ":                   ErrNameEmpty,
		"A":                     ErrNameTooShort,
		strings.Repeat("a", 51): ErrNameTooLong,
		"John123":               ErrNameCharacters,
		"Jane_Doe":              ErrNameCharacters,
	}
	for input, want := range cases {
		_, err := ValidateName(input)
		assert.ErrorIs(t, err, want, "input %q", input)
	}
}

func TestValidateNameNormalizes(t *testing.T) {
	got, err := ValidateName("john o'neil-smith")
	require.NoError(t, err)
	assert.Equal(t, "JOHN O'NEIL-SMITH", got)

	got, err = ValidateName("  Алишер ")
	require.NoError(t, err)
	assert.Equal(t, "АЛИШЕР", got)

	got, err = ValidateName(strings.Repeat("b", 50))
	require.NoError(t, err)
	assert.Len(t, got, 50)
}

func TestFormatPhone(t *testing.T) {
	got, err := FormatPhone("998 90 123 45 67")
	require.NoError(t, err)
	assert.Equal(t, "+998901234567", got)

	got, err = FormatPhone("+1 (555) 000-1111")
	require.NoError(t, err)
	assert.Equal(t, "+15550001111", got)

	_, err = FormatPhone("12345678")
	assert.ErrorIs(t, err, ErrPhoneInvalid)
	assert.False(t, IsValidPhone("+1234-5678"))
	assert.True(t, IsValidPhone("123456789"))
}

func TestNormalizeFullName(t *testing.T) {
	assert.Equal(t, "JOHN DOE", NormalizeFullName("  john   doe "))
	assert.Equal(t, "JOHN DOE", JoinFullName("John", " Doe"))
}

func TestParseNameList(t *testing.T) {
	got := ParseNameList("JOHN DOE\r\n\n  jane smith  \n\t\nALEX")
	assert.Equal(t, []string{"JOHN DOE", "jane smith", "ALEX"}, got)
	assert.Empty(t, ParseNameList(""))
}
