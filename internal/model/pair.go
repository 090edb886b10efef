package model

import (
	"time"
)

// Pair is one daily pairing record covering both members. Rows are stored
// normalized with UserID1 < UserID2; PairDate has day granularity.
type Pair struct {
	ID        int64     `db:"id" json:"id"`
	UserID1   int64     `db:"user_id_1" json:"user_id_1"`
	UserID2   int64     `db:"user_id_2" json:"user_id_2"`
	PairDate  string    `db:"pair_date" json:"pair_date"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}

type CreatePairParams struct {
	UserID1  int64
	UserID2  int64
	PairDate string
}

// HistoryEntry is a pair record presented from one member's point of view.
type HistoryEntry struct {
	ID          int64  `db:"id" json:"id"`
	PartnerID   int64  `db:"partner_id" json:"partner_id"`
	PartnerName string `db:"partner_name" json:"partner_name"`
	PairDate    string `db:"pair_date" json:"pair_date"`
}
