package server

import (
	"net/http"

	"github.com/taskhub/go-task-server/notifications"
)

// NotificationsHandler lists unread notices addressed to the caller.
func (s *Server) NotificationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, notAuthorizedMsg)
			return
		}

		list, err := s.repos.Notices.ListUnread(r.Context(), identity.UserID)
		if err != nil {
			s.log.Error().Err(err).Msg("[NotificationsHandler] list unread")
			writeError(w, http.StatusInternalServerError, "Could not load notifications.")
			return
		}
		if list == nil {
			list = []*notifications.Notice{}
		}
		writeJSON(w, http.StatusCreated, list)
	}
}

// ReadNotificationHandler marks one notice (or all, with
// isReadType=all) as read by the caller.
func (s *Server) ReadNotificationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, notAuthorizedMsg)
			return
		}

		isReadType := r.URL.Query().Get("isReadType")
		noticeID := r.URL.Query().Get("id")

		var err error
		if isReadType == "all" {
			err = s.repos.Notices.MarkAllRead(r.Context(), identity.UserID)
		} else {
			err = s.repos.Notices.MarkRead(r.Context(), noticeID, identity.UserID)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("noticeId", noticeID).Msg("[ReadNotificationHandler] mark read")
			writeError(w, http.StatusBadRequest, "Could not mark notification as read.")
			return
		}

		writeJSON(w, http.StatusCreated, StatusResponse{Status: true, Message: "Done"})
	}
}
