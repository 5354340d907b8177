package pipeline

import "errors"

// Per-frame failure taxonomy. None of these stop the display loop; each
// maps to a State and a display string.
var (
	// ErrCameraNotStarted is reported when Process runs without a session.
	ErrCameraNotStarted = errors.New("pipeline: camera not started")

	// ErrCameraAcquisition is reported when a frame cannot be read.
	ErrCameraAcquisition = errors.New("pipeline: camera acquisition failed")

	// ErrClassifier is reported when the whole-frame scan fails.
	ErrClassifier = errors.New("pipeline: classifier failed")

	// ErrInvalidCrop is reported when the selected face has no pixels
	// inside the frame.
	ErrInvalidCrop = errors.New("pipeline: invalid face crop")

	// ErrRefinementEmpty is reported when the refinement pass finds no face.
	ErrRefinementEmpty = errors.New("pipeline: refinement found no face")
)

// Display strings for terminal states
const (
	TextCameraNotStarted = "Camera not started"
	TextCameraError      = "Camera Error"
	TextNoFace           = "No Face Detected"
	TextDetectionError   = "Detection Error"
	TextFaceError        = "Face Error"
	TextAnalyzing        = "Analyzing..."
)

// State is where a Process call ended.
type State int

const (
	// StateNotStarted means no camera session was open.
	StateNotStarted State = iota

	// StateCameraError means the frame read failed.
	StateCameraError

	// StateClassifierError means the whole-frame scan failed.
	StateClassifierError

	// StateNoFace means the whole-frame scan found nothing.
	StateNoFace

	// StateCropInvalid means the selected box lay outside the frame.
	StateCropInvalid

	// StateRefinementEmpty means the crop rescan found nothing.
	StateRefinementEmpty

	// StateRejected means the reading was at or below the confidence floor.
	StateRejected

	// StateAccepted means the reading entered the history.
	StateAccepted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateCameraError:
		return "camera_error"
	case StateClassifierError:
		return "classifier_error"
	case StateNoFace:
		return "no_face"
	case StateCropInvalid:
		return "crop_invalid"
	case StateRefinementEmpty:
		return "refinement_empty"
	case StateRejected:
		return "rejected"
	case StateAccepted:
		return "accepted"
	default:
		return "unknown"
	}
}

// Classified reports whether the state carries a current-frame reading.
func (s State) Classified() bool {
	return s == StateRejected || s == StateAccepted
}
