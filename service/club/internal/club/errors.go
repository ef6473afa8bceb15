package club

import "errors"

// Errori di dominio usati da service/repo e mappati nel layer HTTP.
var ErrClubNotFound = errors.New("club not found")

// ErrProfileNotFound indica un utente senza profilo.
var ErrProfileNotFound = errors.New("profile not found")

// ErrDuplicateMembership indica una riga (club, runner) gia' presente.
var ErrDuplicateMembership = errors.New("membership already exists")

// ErrDuplicateProfile indica un profilo gia' creato per l'utente.
var ErrDuplicateProfile = errors.New("profile already exists")

// ErrForbidden indica un'azione non permessa al ruolo o all'utente.
var ErrForbidden = errors.New("forbidden")

// ErrFreePlanLimit indica che il piano free consente un solo club.
var ErrFreePlanLimit = errors.New("free plan leaders can only create one club")

// ErrInvalidArgument indica input mancante o non valido.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrActionInProgress indica la stessa azione gia' in corso per l'utente.
var ErrActionInProgress = errors.New("request already in progress")
