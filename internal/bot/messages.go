package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/gogermany/gobot/core/telegram/format"
	"github.com/gogermany/gobot/internal/admin"
	"github.com/gogermany/gobot/internal/broadcast"
	"github.com/gogermany/gobot/internal/domain"
	"github.com/gogermany/gobot/internal/transport"
	"github.com/gogermany/gobot/internal/validation"
)

// User facing texts are Uzbek; the admin panel stays in English.
const (
	textWelcome = "🇩🇪 Go Germany botiga xush kelibsiz!\n\n" +
		"Davom etish uchun quyidagi tugmani bosib telefon raqamingizni yuboring.\n\n" +
		"Bu bizning xizmatlarimizdan foydalanish uchun majburiydir."
	textWelcomeBack      = "👋 Qaytganingizdan xursandmiz! Quyidagi menyudan tanlang:"
	textAdminHint        = "\n\n🔐 Siz adminsiz. Admin paneliga kirish uchun /admin buyrug'ini yuboring."
	textAdminHintPending = "🔐 Siz adminsiz. Istalgan vaqtda /admin buyrug'i orqali admin paneliga kirishingiz mumkin."
	textPhoneReceived    = "✅ Rahmat! Telefon raqamingiz saqlandi.\n\nKeyingi qadam - rasmiy kanallarimizga obuna bo'ling:"
	textForeignContact   = "❌ Iltimos, boshqa birovning emas, o'z telefon raqamingizni yuboring."
	textJoinChannels     = "📢 Iltimos, quyidagi ikkala kanalga obuna bo'ling va \"Tekshirish\" tugmasini bosing:"
	textNotSubscribed    = "❌ Siz hali barcha kerakli kanallarga obuna bo'lmagansiz.\n\n" +
		"Iltimos, ikkala kanalga ham obuna bo'ling va qaytadan urinib ko'ring:"
	textUnverified = "⚠️ Obunangizni hozir tekshirib bo'lmadi.\n\n" +
		"Iltimos, birozdan so'ng \"Tekshirish\" tugmasini qayta bosing:"
	textChannelsVerified  = "✅ Kanallar tasdiqlandi! Quyida davom eting..."
	textAskFirstName      = "O'zbekiston xorijga chiqish pasportingizdagi *Ismingizni* aynan yozing:"
	textReenterName       = "🔄 Pasport ismingizni qaytadan kiritamiz."
	textPassportConfirmed = "✅ Pasport ma'lumotlaringiz tasdiqlandi."
	textNameConfirmed     = "✅ Ma'lumotlaringiz muvaffaqiyatli saqlandi!\n\n" +
		"Endi barcha xizmatlarimizdan foydalanishingiz mumkin."

	textMainMenu   = "📋 *Asosiy Menyu*\n\nQuyidagi variantlardan birini tanlang:"
	textShortMenu  = "📋 Asosiy menyu:"
	textBackToMenu = "📋 Asosiy menyuga qaytish..."
	textCancelled  = "❌ Amal bekor qilindi."
	textUnknown    = "❓ Tushunmadim. Iltimos, menyu tugmalaridan foydalaning."
	textTextOnly   = "❓ Men faqat matn buyruqlarini qabul qilaman. Iltimos, menyu tugmalaridan foydalaning."
	textFailure    = "❌ Xatolik yuz berdi. Iltimos, qaytadan urinib ko'ring yoki /start buyrug'ini bosing."
	textAdminOnly  = "❌ Bu buyruq faqat administratorlar uchun."
	textWrong      = "❌ Noto'g'ri amal."

	textEnterSecondaryPhone = "📱 *Telefon raqamni kiriting*\n\n" +
		"Siz bilan bog'lanishimiz kerak bo'lgan telefon raqamni kiriting.\n\n" +
		"Format: +998901234567 (mamlakat kodi bilan)"
	textInvalidPhone = "❌ Telefon raqam formati noto'g'ri.\n\n" +
		"Iltimos, mamlakat kodi bilan to'g'ri raqam kiriting (masalan: +998901234567):"

	textNotOnboarded      = "❌ Avval ro'yxatdan o'tishni yakunlang."
	textWhatsappFirstName = "📝 *WhatsApp guruhiga qo'shilish uchun ma'lumotlaringizni kiriting*\n\n" +
		"Iltimos, pasportingizdagi *ISM*ingizni kiriting (faqat birinchi ism):\n\n_Masalan: ABDURAHMON_"
	textWhatsappReenter = "🔄 Ma'lumotlarni qayta kiritamiz."
	textRevealPreparing = "✅ Ruxsat berildi! Havola tayyorlanmoqda..."
	textRevealCancelled = "❌ Bekor qilindi."
	textLinkExpired     = "⏱ WhatsApp havola xabari muddati tugadi.\n\nAsosiy menyudan qayta so'rashingiz mumkin."
	textLinkExpiredEdit = "⏱ *Havola muddati tugadi*\n\nBu havola endi mavjud emas. Asosiy menyudan yangi so'rang."
)

const (
	textAdminCancelled  = "❌ Operation cancelled."
	textAdminBack       = "📋 Returning to main menu..."
	textExporting       = "⏳ Generating CSV file..."
	textExportFailed    = "❌ Failed to export users. Please try again later."
	textNamesNeedText   = "❌ Please send text containing the names."
	textNoNames         = "❌ No valid names found. Please try again with names on separate lines."
	textImportFailed    = "❌ Failed to add names. Please try again."
	textListFailed      = "❌ Failed to fetch names. Please try again."
	textNamesEmpty      = "📋 *Allowed Names List*\n\nNo names have been added yet.\n\nUse \"➕ Add Allowed Names\" to add names."
	textBroadcastStart  = "⏳ Starting broadcast...\n\nThis may take a while depending on the number of users."
	textBroadcastFailed = "❌ Broadcast failed. Please try again later."
	textAddNames        = "📝 *Add Allowed Names*\n\n" +
		"Send me a list of full names (first name and last name), one per line.\n\n" +
		"Example:\n```\nJOHN DOE\nJANE SMITH\nALEX JOHNSON\n```\n\n" +
		"Names will be converted to uppercase automatically.\n\n" +
		"Send /cancel to cancel this operation."
)

func plain(text string, markup *tele.ReplyMarkup) transport.Message {
	return transport.Message{Text: text, Markup: markup}
}

func md(text string, markup *tele.ReplyMarkup) transport.Message {
	return transport.Message{Text: text, ParseMode: tele.ModeMarkdown, Markup: markup}
}

func enterLastNameText(first string) string {
	return fmt.Sprintf("✅ Ism saqlandi: *%s*\n\n"+
		"Endi O'zbekiston xorijga chiqish pasportingizdagi *Familiyangizni* aynan yozing:", format.MD(first))
}

func confirmNameText(first, last string) string {
	return fmt.Sprintf("📋 Pasport ma'lumotlaringizni tasdiqlang:\n\n*Ism:* %s\n*Familiya:* %s\n\nBu to'g'rimi?",
		format.MD(first), format.MD(last))
}

func invalidNameText(reason error) string {
	var why string
	switch {
	case errors.Is(reason, validation.ErrNameEmpty):
		why = "Ism kiritish shart"
	case errors.Is(reason, validation.ErrNameTooShort):
		why = "Ism juda qisqa"
	case errors.Is(reason, validation.ErrNameTooLong):
		why = "Ism juda uzun"
	case errors.Is(reason, validation.ErrNameCharacters):
		why = "Ismda noto'g'ri belgilar mavjud. Faqat harflardan foydalaning."
	default:
		why = "Ism noto'g'ri"
	}
	return "❌ " + why + "\n\nIltimos, qaytadan urinib ko'ring:"
}

func serviceConfirmText(s domain.ServiceType, phone string) string {
	if phone == "" {
		phone = "Mavjud emas"
	}
	return fmt.Sprintf("📋 *%s*\n\n"+
		"Siz ushbu xizmatni tanladingiz. Davom etishdan oldin telefon raqamingizni tasdiqlang:\n\n"+
		"📱 *Joriy raqam:* %s\n\n"+
		"Siz bilan bog'lanishimiz uchun bu raqam to'g'rimi?", format.MD(s.DisplayName()), format.MD(phone))
}

func requestSentText(s domain.ServiceType, phone string) string {
	return fmt.Sprintf("✅ *So'rov yuborildi*\n\nXizmat: %s\nTelefon: %s\n\n"+
		"📞 Administrator tez orada siz bilan ushbu raqam orqali bog'lanadi.\n\n"+
		"Qiziqishingiz uchun rahmat!", format.MD(s.DisplayName()), format.MD(phone))
}

func serviceRequestNotice(u *domain.User, s domain.ServiceType, phone string, at time.Time) string {
	username := "N/A"
	if u.Username != "" {
		username = "@" + u.Username
	}
	return fmt.Sprintf("🔔 *New Service Request*\n\n"+
		"📋 *Service:* %s\n"+
		"👤 *User:* %s\n"+
		"🆔 *Username:* %s\n"+
		"📱 *Contact Phone:* %s\n"+
		"🪪 *Passport Name:* %s\n"+
		"📅 *Time:* %s\n\n"+
		"Please contact the user to proceed.",
		format.MD(s.DisplayName()),
		format.MD(u.TelegramName()),
		format.MD(username),
		format.MD(phone),
		format.MD(u.PassportFullName()),
		at.UTC().Format(time.RFC3339),
	)
}

func whatsappLastNameText(first string) string {
	return fmt.Sprintf("✅ Ismingiz: *%s*\n\nEndi pasportingizdagi *FAMILIYA*ngizni kiriting:\n\n_Masalan: ABDULLAYEV_",
		format.MD(first))
}

func whatsappConfirmText(first, last string) string {
	return fmt.Sprintf("📋 *Ma'lumotlaringizni tasdiqlang:*\n\n👤 *Ism:* %s\n👤 *Familiya:* %s\n\nMa'lumotlar to'g'rimi?",
		format.MD(first), format.MD(last))
}

func revealDeniedText(first, last string) string {
	return fmt.Sprintf("❌ *Ruxsat berilmadi*\n\n"+
		"Sizning ismingiz (%s %s) tasdiqlangan ro'yxatda yo'q.\n\n"+
		"Agar bu xatolik deb hisoblasangiz, administrator bilan bog'laning yoki ma'lumotlarni qayta kiritib ko'ring.",
		format.MD(first), format.MD(last))
}

func countdownText(remaining time.Duration) string {
	return fmt.Sprintf("✅ *Ruxsat berildi!*\n\n"+
		"WhatsApp guruhiga qo'shilish uchun quyidagi tugmani bosing.\n\n"+
		"⏱ Bu xabar *%d soniya*dan keyin o'chiriladi.\n\n"+
		"⚠️ _Bu havola faqat shaxsiy foydalanish uchun._", int(remaining/time.Second))
}

func adminPanelText(st domain.Stats) string {
	return fmt.Sprintf("🔐 *Admin Panel*\n\n"+
		"📊 *Statistics:*\n"+
		"• Total users: %d\n"+
		"• Onboarded: %d\n"+
		"• Pending onboarding: %d\n"+
		"• Registered today: %d\n\n"+
		"Select an action below:", st.Total, st.Onboarded, st.Pending, st.RegisteredToday)
}

func exportCaption(exp admin.Export, at time.Time) string {
	return fmt.Sprintf("📊 User Export\n\nTotal onboarded users: %d\nGenerated: %s", exp.Rows, at.UTC().Format(time.RFC3339))
}

func namesAddedText(rep admin.ImportReport) string {
	return fmt.Sprintf("✅ *Names Added*\n\n• Added: %d\n• Duplicates skipped: %d\n• Total processed: %d",
		rep.Added, rep.Duplicates, rep.Processed)
}

func namesHeaderText(total int, split bool) string {
	head := fmt.Sprintf("📋 *Allowed Names List* (%d total)", total)
	if split {
		return head + "\n\nSending in multiple messages..."
	}
	return head
}

func broadcastPromptText(onboarded int) string {
	return fmt.Sprintf("📢 *Broadcast Message*\n\n"+
		"Send me the message you want to broadcast to all %d onboarded users.\n\n"+
		"You can send:\n"+
		"• Text messages\n"+
		"• Photos with captions\n"+
		"• Videos with captions\n"+
		"• Documents, audio and voice notes\n\n"+
		"Send /cancel to cancel this operation.", onboarded)
}

func broadcastProgressText(p broadcast.Progress) string {
	return fmt.Sprintf("📢 Broadcast progress: %d/%d\n✅ Sent: %d\n❌ Failed: %d\n🚫 Blocked: %d",
		p.Current, p.Total, p.Success, p.Failed, p.Blocked)
}

func broadcastDoneText(sum broadcast.Summary, interrupted bool) string {
	title := "✅ *Broadcast Complete*"
	if interrupted {
		title = "⚠️ *Broadcast Interrupted*"
	}
	var b strings.Builder
	b.WriteString(title)
	fmt.Fprintf(&b, "\n\n📊 Results:\n• Total users: %d\n• Successfully sent: %d\n• Failed: %d\n• Users who blocked bot: %d",
		sum.Total, sum.Success, sum.Failed, sum.Blocked)
	return b.String()
}
