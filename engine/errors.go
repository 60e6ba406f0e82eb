package engine

import "errors"

// Code is a stable machine-readable identifier for a rejected operation.
type Code string

const (
	CodeInvalidPile             Code = "invalid_pile"
	CodeInvalidDestination      Code = "invalid_destination"
	CodeCardMismatch            Code = "card_mismatch"
	CodeFaceDownMove            Code = "face_down_move"
	CodeDiscardSingleOnly       Code = "discard_single_only"
	CodeFoundationSingleOnly    Code = "foundation_single_only"
	CodeFoundationNeedsAce      Code = "foundation_needs_ace"
	CodeFoundationSuitMismatch  Code = "foundation_suit_mismatch"
	CodeFoundationSequenceBreak Code = "foundation_sequence_break"
	CodeTableauNeedsKing        Code = "tableau_needs_king"
	CodeTableauColorMismatch    Code = "tableau_color_mismatch"
	CodeTableauSequenceBreak    Code = "tableau_sequence_break"
	CodeNoCardsToDraw           Code = "no_cards_to_draw"
	CodeNothingToUndo           Code = "nothing_to_undo"
	CodeNothingToRedo           Code = "nothing_to_redo"
)

// Category groups codes by the kind of problem they report.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryInput
	CategoryLegality
	CategoryExhausted
	CategoryHistory
)

// RuleError is returned for every recoverable rejection. The sentinels
// below are the only instances; compare with errors.Is.
type RuleError struct {
	Code    Code
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// Category returns the group the error's code belongs to.
func (e *RuleError) Category() Category {
	switch e.Code {
	case CodeInvalidPile, CodeInvalidDestination:
		return CategoryInput
	case CodeNoCardsToDraw:
		return CategoryExhausted
	case CodeNothingToUndo, CodeNothingToRedo:
		return CategoryHistory
	case "":
		return CategoryUnknown
	}
	return CategoryLegality
}

func newRuleError(code Code, msg string) *RuleError {
	return &RuleError{Code: code, Message: msg}
}

var (
	ErrInvalidPile        = newRuleError(CodeInvalidPile, "invalid source or destination pile")
	ErrInvalidDestination = newRuleError(CodeInvalidDestination, "invalid destination pile")

	ErrCardMismatch            = newRuleError(CodeCardMismatch, "invalid cards to move")
	ErrFaceDownMove            = newRuleError(CodeFaceDownMove, "cannot move face-down cards")
	ErrDiscardSingleOnly       = newRuleError(CodeDiscardSingleOnly, "can only move one card from discard pile")
	ErrFoundationSingleOnly    = newRuleError(CodeFoundationSingleOnly, "can only move one card to foundation at a time")
	ErrFoundationNeedsAce      = newRuleError(CodeFoundationNeedsAce, "only an ace can be placed on an empty foundation pile")
	ErrFoundationSuitMismatch  = newRuleError(CodeFoundationSuitMismatch, "card must be of the same suit as foundation pile")
	ErrFoundationSequenceBreak = newRuleError(CodeFoundationSequenceBreak, "card must be one higher in value than foundation top card")
	ErrTableauNeedsKing        = newRuleError(CodeTableauNeedsKing, "only a king can be placed on an empty tableau pile")
	ErrTableauColorMismatch    = newRuleError(CodeTableauColorMismatch, "card must be of opposite color")
	ErrTableauSequenceBreak    = newRuleError(CodeTableauSequenceBreak, "card must be one lower in value than destination top card")

	ErrNoCardsToDraw = newRuleError(CodeNoCardsToDraw, "no more cards to draw")

	ErrNothingToUndo = newRuleError(CodeNothingToUndo, "no more moves to undo")
	ErrNothingToRedo = newRuleError(CodeNothingToRedo, "no more moves to redo")
)

// CodeOf extracts the rule code from err, or "" if err is not a RuleError.
func CodeOf(err error) Code {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
