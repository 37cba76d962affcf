package services

// Authorize checks that the acting user is the owner (or author) of a
// resource. It is the single ownership gate for book and review
// mutations and must run after the existence check, so that a denial
// never doubles as a not-found signal.
func Authorize(actorID, ownerID int) error {
	if actorID != ownerID {
		return ErrForbidden
	}
	return nil
}
