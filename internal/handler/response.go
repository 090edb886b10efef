package handler

import (
	"net/http"

	"github.com/vendpair/vendpair-go/internal/httputil"
	"github.com/vendpair/vendpair-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func formatUser(user model.User) map[string]any {
	return map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	}
}

func formatUsers(users []model.User) []map[string]any {
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, formatUser(u))
	}
	return out
}

func formatPair(pair model.Pair) map[string]any {
	return map[string]any{
		"id":        pair.ID,
		"user_id_1": pair.UserID1,
		"user_id_2": pair.UserID2,
		"pair_date": pair.PairDate,
	}
}

func formatHistory(entries []model.HistoryEntry) []map[string]any {
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"id":           e.ID,
			"partner_id":   e.PartnerID,
			"partner_name": e.PartnerName,
			"pair_date":    e.PairDate,
		})
	}
	return out
}
