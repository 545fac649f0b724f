package repository

import "errors"

// ErrPasswordRejected is returned by Create when the password cannot be
// hashed under the store's policy.
var ErrPasswordRejected = errors.New("password rejected by store policy")
