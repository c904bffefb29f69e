package lib

import "errors"

// BadUserInputError marks errors caused by configuration or command line input.
var BadUserInputError = errors.New("bad user input")

var NotFoundError = errors.New("not found")
