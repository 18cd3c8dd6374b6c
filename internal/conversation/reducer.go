// Package conversation implements the conversation state machine and the
// orchestration around it.
//
// The state machine is a closed set of named transitions over the whole
// conversation record, applied through a single pure reducer function. All
// mutation flows through Reduce; nothing else writes ConversationState fields.
package conversation

import (
	"github.com/capshealth/healthbot/internal/models"
)

// ActionType names a transition in the conversation state machine.
type ActionType string

const (
	// ActionInitializeSession sets the healthcare context and privacy style.
	ActionInitializeSession ActionType = "INITIALIZE_SESSION"
	// ActionSetWelcomeMessage stores the generated welcome document.
	ActionSetWelcomeMessage ActionType = "SET_WELCOME_MESSAGE"
	// ActionRegisterUser stores user details and the derived session ID.
	ActionRegisterUser ActionType = "REGISTER_USER"
	// ActionAddMessage appends a message to the transcript.
	ActionAddMessage ActionType = "ADD_MESSAGE"
	// ActionSetLoading marks whether an exchange is in flight.
	ActionSetLoading ActionType = "SET_LOADING"
	// ActionSetError records the last failure message.
	ActionSetError ActionType = "SET_ERROR"
	// ActionClearError dismisses the last failure message.
	ActionClearError ActionType = "CLEAR_ERROR"
	// ActionTogglePrivacyBox flips the privacy box for progressive style.
	ActionTogglePrivacyBox ActionType = "TOGGLE_PRIVACY_BOX"
)

// Action is the tagged union consumed by Reduce. Only the fields relevant to
// the action's type are read; the rest are ignored.
type Action struct {
	Type              ActionType
	HealthcareContext models.HealthcareContext
	PrivacyStyle      models.PrivacyStyle
	Welcome           string
	UserDetails       *models.UserDetails
	SessionID         string
	Message           models.Message
	Loading           bool
	Error             string
}

// Reduce advances the conversation state by one transition. It is pure and
// total: the input state is never mutated, no transition can fail, and
// unknown action types return the state unchanged. Input validation belongs
// to the orchestrator and API layer, not here.
func Reduce(state models.ConversationState, action Action) models.ConversationState {
	switch action.Type {
	case ActionInitializeSession:
		next := state
		next.HealthcareContext = action.HealthcareContext
		next.PrivacyStyle = action.PrivacyStyle
		// The privacy box survives re-initialization only when the style is
		// unchanged from the stored one.
		if state.PrivacyStyle != action.PrivacyStyle {
			next.PrivacyBoxVisible = false
		}
		return next

	case ActionSetWelcomeMessage:
		next := state
		next.WelcomeMessage = action.Welcome
		return next

	case ActionRegisterUser:
		next := state
		next.UserDetails = action.UserDetails
		next.SessionID = action.SessionID
		next.IsRegistered = true
		return next

	case ActionAddMessage:
		next := state
		messages := make([]models.Message, len(state.Messages), len(state.Messages)+1)
		copy(messages, state.Messages)
		next.Messages = append(messages, action.Message)
		next.Error = ""
		return next

	case ActionSetLoading:
		next := state
		next.IsLoading = action.Loading
		return next

	case ActionSetError:
		next := state
		next.Error = action.Error
		next.IsLoading = false
		return next

	case ActionClearError:
		next := state
		next.Error = ""
		return next

	case ActionTogglePrivacyBox:
		next := state
		if state.PrivacyStyle == models.PrivacyStyleProgressive {
			next.PrivacyBoxVisible = !state.PrivacyBoxVisible
		} else {
			next.PrivacyBoxVisible = false
		}
		return next

	default:
		return state
	}
}
