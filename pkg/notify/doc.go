// Package notify distributes committed connection state transitions to
// interested observers: in-process callbacks and websocket clients.
// Notifiers never block the engine actor that produced the transition.
package notify
