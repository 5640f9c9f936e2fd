package main

import (
	"errors"
)

var (
	ERR_INTERRUPTED_BY_USER error = errors.New("Interrupted by user")
	ERR_NO_FILE             error = errors.New("No file uploaded")
	ERR_BAD_PARAMETER       error = errors.New("Can't parse parameter")
	ERR_MISSING_PARAMETER   error = errors.New("Missing required parameter")
	ERR_NOT_CONFIGURED      error = errors.New("Service not configured")
)
