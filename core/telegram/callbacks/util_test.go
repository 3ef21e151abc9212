package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name        string
		cb          *tele.Callback
		key, detail string
	}{
		{"nil", nil, "", ""},
		{"unique", &tele.Callback{Unique: "confirm_name", Data: "x"}, "confirm_name", "x"},
		{"raw", &tele.Callback{Data: "\fcheck_subscription|7"}, "check_subscription", "7"},
		{"raw without payload", &tele.Callback{Data: "\fwhatsapp_cancel"}, "whatsapp_cancel", ""},
	}
	for _, tc := range cases {
		key, payload := ParseCallbackData(tc.cb)
		if key != tc.key || payload != tc.detail {
			t.Fatalf("%s: got (%q, %q), want (%q, %q)", tc.name, key, payload, tc.key, tc.detail)
		}
	}
}
