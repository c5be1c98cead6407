package auth

// Authorize permits an action only when the principal's identity equals
// the resource's recorded owner identity. Comparison is exact and
// case-sensitive; an empty value on either side is never a match.
func Authorize(principal, ownerIdentity string) error {
	if principal == "" || ownerIdentity == "" || principal != ownerIdentity {
		return ErrForbidden
	}
	return nil
}
