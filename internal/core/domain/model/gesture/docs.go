// Package gesture implements the swipe-to-confirm control shared by the accept,
// reached-pickup, order-id, reached-drop and delivered buttons.
//
// A drag counts only when it moves rightward by more than DeadZone pixels and its
// horizontal travel exceeds the vertical one. Progress is the horizontal travel divided by
// the knob's travel distance, clamped to [0, 1].
package gesture
