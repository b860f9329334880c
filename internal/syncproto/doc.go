// Package syncproto keeps every context's copy of the presentation state in
// agreement.
//
// A Presenter owns the only writable state. Each control operation is turned
// into a SyncMessage, applied locally through Apply and broadcast. An Output
// asks for the full state when it starts, waits for the first STATE_SYNC and
// then follows the presenter's fine-grained messages. Apply is pure and
// idempotent, so replaying a message, or replacing a sequence of messages by
// one STATE_SYNC, always lands on the same state.
package syncproto
