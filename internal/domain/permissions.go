package domain

// IsCreatorModeratorAdmin reports whether actor may modify ticket: its creator,
// a ticket moderator or an admin.
func IsCreatorModeratorAdmin(ticket *Ticket, actor *User) bool {
	if ticket == nil || actor == nil {
		return false
	}
	return actor.IsAdmin || actor.IsTicketsModerator || (actor.ID != "" && ticket.CreatedBy.UserID == actor.ID)
}

// CanModifyComment reports whether actor may edit or delete comment.
func CanModifyComment(comment *Comment, actor *User) bool {
	if comment == nil || actor == nil {
		return false
	}
	return actor.IsAdmin || actor.IsTicketsModerator || (actor.ID != "" && comment.CreatedBy.UserID == actor.ID)
}
