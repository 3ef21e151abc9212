package helpers

import tele "gopkg.in/telebot.v4"

const userKey = "bot.user"

// StoreUser attaches the resolved domain user to the update so handlers
// behind the loading middleware can read it back.
func StoreUser(c tele.Context, u any) {
	if c == nil || u == nil {
		return
	}
	c.Set(userKey, u)
}

// UserFrom returns the user stored by StoreUser. The generic type lets each
// bot keep its own user model.
func UserFrom[T any](c tele.Context) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	u, ok := c.Get(userKey).(T)
	return u, ok
}
