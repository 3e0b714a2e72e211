// Package notify provides a minimal type-safe signal hub for
// synchronous one-to-many notifications.
//
// Unlike channel-based broadcasters, handlers are plain functions
// invoked on the emitter's goroutine. This gives consumers a hard
// ordering guarantee: by the time Emit returns, every subscriber has
// observed the value.
//
// Basic usage:
//
//	hub := notify.NewHub[string]()
//	unsubscribe := hub.Subscribe(func(v string) {
//		fmt.Println("got", v)
//	})
//	defer unsubscribe()
//
//	hub.Emit("hello")
package notify
