package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/telegram/keyboard"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/membership"
)

// Callback keys of the inline buttons.
const (
	cbCheckSubscription = "check_subscription"
	cbConfirmName       = "confirm_name"
	cbReenterName       = "reenter_name"
	cbConfirmPhone      = "confirm_phone"
	cbDifferentPhone    = "different_phone"
	cbWhatsappConfirm   = "whatsapp_confirm"
	cbWhatsappReenter   = "whatsapp_reenter"
	cbWhatsappCancel    = "whatsapp_cancel"
)

const (
	labelSharePhone     = "📱 Telefon raqamni yuborish"
	labelCheck          = "✅ Tekshirish"
	labelConfirm        = "✅ Tasdiqlash"
	labelReenter        = "🔄 Qayta kiritish"
	labelCancel         = "❌ Bekor qilish"
	labelConfirmPhone   = "✅ Ha, to'g'ri"
	labelDifferentPhone = "🔄 Boshqa raqam"
	labelJoinWhatsapp   = "💬 WhatsApp guruhiga qo'shilish"

	labelWhatsapp     = "💬 WhatsApp guruh havolasi"
	labelWorkTravel   = "✈️ Work & Travel (Germaniya)"
	labelStudy        = "📚 O'qish (Germaniya)"
	labelAusbildung   = "🎓 Ausbildung (Germaniya)"
	labelArbeitsvisum = "💼 Arbeitsvisum (Germaniya)"

	labelExport    = "📊 Export Users"
	labelAddNames  = "➕ Add Allowed Names"
	labelViewNames = "📋 View Allowed Names"
	labelBroadcast = "📢 Broadcast Message"
	labelBack      = "◀️ Orqaga"
)

var serviceLabels = map[string]domain.ServiceType{
	labelWorkTravel:   domain.ServiceWorkTravel,
	labelStudy:        domain.ServiceStudy,
	labelAusbildung:   domain.ServiceAusbildung,
	labelArbeitsvisum: domain.ServiceArbeitsvisum,
}

func contactKeyboard() *tele.ReplyMarkup {
	return keyboard.ContactRequest(labelSharePhone)
}

// channelsKeyboard links every required group that has an invite link and
// ends with the check button.
func channelsKeyboard(groups []membership.Group) *tele.ReplyMarkup {
	rows := make([][]keyboard.InlineBtn, 0, len(groups)+1)
	for i, g := range groups {
		if g.Link == "" {
			continue
		}
		rows = append(rows, []keyboard.InlineBtn{{Text: "📢 " + strconv.Itoa(i+1) + "-kanal", URL: g.Link}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: labelCheck, Unique: cbCheckSubscription}})
	return keyboard.InlineButtonsRows(rows...)
}

func nameConfirmKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: labelConfirm, Unique: cbConfirmName},
		{Text: labelReenter, Unique: cbReenterName},
	})
}

func phoneConfirmKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: labelConfirmPhone, Unique: cbConfirmPhone},
		{Text: labelDifferentPhone, Unique: cbDifferentPhone},
	})
}

func whatsappConfirmKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: labelConfirm, Unique: cbWhatsappConfirm},
			{Text: labelReenter, Unique: cbWhatsappReenter},
		},
		[]keyboard.InlineBtn{{Text: labelCancel, Unique: cbWhatsappCancel}},
	)
}

func whatsappRetryKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: labelReenter, Unique: cbWhatsappReenter},
		{Text: labelCancel, Unique: cbWhatsappCancel},
	})
}

func whatsappLinkKeyboard(link string) *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{{Text: labelJoinWhatsapp, URL: link}})
}

func mainMenuKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{labelWhatsapp},
		[]string{labelWorkTravel},
		[]string{labelStudy},
		[]string{labelAusbildung},
		[]string{labelArbeitsvisum},
	)
}

func adminKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{labelExport},
		[]string{labelAddNames, labelViewNames},
		[]string{labelBroadcast},
		[]string{labelBack},
	)
}
