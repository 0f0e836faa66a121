package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrIllegalMove       = errors.New("illegal move")
	ErrNoActiveGames     = errors.New("no active games")
	ErrGameAlreadyExists = errors.New("game already exists")
	ErrGameIsFull        = errors.New("game is full")
	ErrNotInGame         = errors.New("player is not in this game")
	ErrMalformedSave     = errors.New("malformed save data")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrStaleDeadline     = errors.New("turn deadline belongs to an earlier ply")
)
