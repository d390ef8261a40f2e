package session

import "errors"

type State string

const (
	StateIdle                State = "idle"
	StateAuthenticating      State = "authenticating"
	StateActionSelection     State = "action_selection"
	StateDepositing          State = "depositing"
	StateRetrieving          State = "retrieving"
	StateConfirmingPlacement State = "confirming_placement"
	StateConfirmingRemoval   State = "confirming_removal"
	StateCommitting          State = "committing"
	StateCancelling          State = "cancelling"
	StateCancelled           State = "cancelled"
)

// Terminal states accept no further operations.
func (s State) Terminal() bool {
	return s == StateIdle || s == StateCancelled
}

func (s State) Confirming() bool {
	return s == StateConfirmingPlacement || s == StateConfirmingRemoval
}

// Cancellable reports whether Cancel may be called in s. Once a commit has
// started the session can no longer be cancelled.
func (s State) Cancellable() bool {
	switch s {
	case StateAuthenticating, StateActionSelection, StateDepositing, StateRetrieving,
		StateConfirmingPlacement, StateConfirmingRemoval:
		return true
	}
	return false
}

type Intent string

const (
	IntentNone     Intent = ""
	IntentDeposit  Intent = "deposit"
	IntentRetrieve Intent = "retrieve"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("operation not allowed in current session state")
	ErrStationBusy       = errors.New("station door is held by another session")
	ErrRetriesExhausted  = errors.New("confirmation attempts exhausted; cancel the session")
)

const (
	adviceScan          = "Scan your QR code."
	adviceChooseAction  = "Choose deposit or retrieve."
	adviceDescribe      = "Describe the food and attach a photo."
	adviceOpenRack      = "Press open to unlock the rack."
	advicePlace         = "Place the food in the rack, close the door and confirm."
	adviceTake          = "Take the food from the rack, close the door and confirm."
	advicePlaceRetry    = "No food detected. Place the food and retry."
	adviceTakeRetry     = "Food still detected. Take the food and retry."
	adviceAmbiguous     = "Could not tell whether the rack is occupied. Adjust the food and retry."
	adviceExhausted     = "Confirmation failed too many times. Please cancel."
	adviceRemovePlaced  = "Remove the food you placed to finish cancelling."
	adviceReturnTaken   = "Return the food you took to finish cancelling."
	adviceTimedOut      = "Confirmation timed out."
	adviceConflict      = "The rack changed while you were using it. Please choose again."
	adviceDonationDone  = "Thank you for your donation."
	adviceCollectedDone = "Enjoy your food."
	adviceCancelled     = "Session cancelled."
	adviceNotRestored   = "Session cancelled. The rack was not restored; please tell the station staff."
	adviceUnknownUser   = "QR code not recognised. Please scan again."
)
