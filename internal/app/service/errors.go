package service

import "errors"

// ErrValidation marca input inválido del usuario; los handlers lo convierten
// en un mensaje y nunca lo dejan subir hasta el loop de mensajes. Lo que no
// existe se señala con storage.ErrNotFound.
var ErrValidation = errors.New("validation")
