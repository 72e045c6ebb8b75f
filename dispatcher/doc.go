// Package dispatcher executes chat turns.
//
// A turn flows through four stages: an intent router picks a domain tag, the
// registry resolves the specialist, the specialist prompt is sent to a
// model.Provider and provider output is translated into the ordered event
// stream of the turn. Every stream follows one of two shapes:
//
//	status*, domain_change, (token* | response), done
//	status*, domain_change, token*, error
//
// domain_change is emitted exactly once and always precedes output. The
// exchange is committed to the session store before done; failed and
// cancelled turns never touch the store.
//
// Dispatch returns a TurnHandle whose Events channel closes after the
// terminal event. Cancel (or cancelling the Dispatch context) stops a turn
// and closes TurnHandle.Done; TurnHandle.Next and stream.Pump deliver nothing
// after that, including events already buffered. Run is the synchronous
// variant collecting a Result.
package dispatcher
