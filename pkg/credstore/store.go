package credstore

import (
	"encoding/json"

	"github.com/dmitrymomot/storekit/pkg/notify"
)

// Storage keys shared by all backends. They mirror what a browser
// client would keep in local storage.
const (
	keyToken     = "token"
	keyUser      = "auth_user"
	keyGuestCart = "guest_cart"
	keyLikes     = "liked_items"
)

// User is the locally cached profile of the signed-in customer.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
}

// Store is durable client-side state: the access token, the cached
// user profile and guest-mode data (cart lines, liked items).
//
// Contract: every mutation of the token (WriteToken, ClearAll) emits
// exactly one session-changed signal to subscribers; reads never emit.
// Corrupt stored JSON is treated as absence and never surfaces as an
// error from the typed readers.
type Store interface {
	ReadToken() string
	WriteToken(token string)

	ReadUser() *User
	WriteUser(u *User)

	ReadGuestCart() []byte
	WriteGuestCart(data []byte)

	ReadLikes() []byte
	WriteLikes(data []byte)

	// ClearAll removes the token and the cached user, leaving
	// guest-mode data intact, and emits a session-changed signal.
	ClearAll()

	// Subscribe registers a handler invoked synchronously after every
	// token mutation. The returned function unsubscribes it.
	Subscribe(fn func(struct{})) func()
}

// hub is embedded by backends to share the subscribe/emit plumbing.
type hub struct {
	sessionChanged *notify.Hub[struct{}]
}

func newHub() hub {
	return hub{sessionChanged: notify.NewHub[struct{}]()}
}

func (h *hub) Subscribe(fn func(struct{})) func() {
	return h.sessionChanged.Subscribe(fn)
}

func (h *hub) emitSessionChanged() {
	h.sessionChanged.Emit(struct{}{})
}

// decodeUser parses a stored user payload, returning nil for missing
// or corrupt data.
func decodeUser(raw []byte) *User {
	if len(raw) == 0 {
		return nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil
	}
	return &u
}

func encodeUser(u *User) []byte {
	if u == nil {
		return nil
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return nil
	}
	return raw
}
