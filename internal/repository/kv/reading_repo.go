package kv

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/model"
	"github.com/go-redis/redis/v8"
	"github.com/gofrs/uuid/v5"
)

// readingRecord is the stored JSON shape of a reading.
type readingRecord struct {
	ID          uuid.UUID `json:"id"`
	Value       int       `json:"value"`
	Date        string    `json:"date"`
	Time        string    `json:"time,omitempty"`
	Timestamp   int64     `json:"timestamp"` // unix millis
	Condition   *int      `json:"condition,omitempty"`
	MorningDose *int      `json:"morning_dose,omitempty"`
	EveningDose *int      `json:"evening_dose,omitempty"`
}

// ReadingRepo implements ReadingRepository on a Redis hash per user.
type ReadingRepo struct{ s *Store }

// NewReadingRepo constructs a reading repository.
func NewReadingRepo(s *Store) *ReadingRepo { return &ReadingRepo{s: s} }

func encodeReading(rd *model.Reading) ([]byte, error) {
	return json.Marshal(readingRecord{
		ID:          rd.ID,
		Value:       rd.Value,
		Date:        rd.Date,
		Time:        rd.Time,
		Timestamp:   rd.Timestamp.UnixMilli(),
		Condition:   rd.Condition,
		MorningDose: rd.MorningDose,
		EveningDose: rd.EveningDose,
	})
}

// Insert stores the reading; an existing id yields errs.ErrAlreadyExists.
func (r *ReadingRepo) Insert(ctx context.Context, rd *model.Reading) error {
	b, err := encodeReading(rd)
	if err != nil {
		return err
	}
	ok, err := r.s.rdb.HSetNX(ctx, r.s.readingsKey(rd.UserID), rd.ID.String(), b).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrAlreadyExists
	}
	return nil
}

// Delete removes one reading.
func (r *ReadingRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	n, err := r.s.rdb.HDel(ctx, r.s.readingsKey(userID), id.String()).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteByDate removes all readings of one calendar day.
func (r *ReadingRepo) DeleteByDate(ctx context.Context, userID uuid.UUID, date string) ([]uuid.UUID, error) {
	all, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	var fields []string
	for _, rd := range all {
		if rd.Date == date {
			ids = append(ids, rd.ID)
			fields = append(fields, rd.ID.String())
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	if err := r.s.rdb.HDel(ctx, r.s.readingsKey(userID), fields...).Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ReplaceDay removes the readings dated rd.Date and stores rd in a single MULTI/EXEC block.
func (r *ReadingRepo) ReplaceDay(ctx context.Context, rd *model.Reading) ([]uuid.UUID, error) {
	key := r.s.readingsKey(rd.UserID)
	m, err := r.s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if _, ok := m[rd.ID.String()]; ok {
		return nil, errs.ErrAlreadyExists
	}
	all, err := decodeReadings(rd.UserID, m)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	var fields []string
	for _, old := range all {
		if old.Date == rd.Date {
			ids = append(ids, old.ID)
			fields = append(fields, old.ID.String())
		}
	}
	b, err := encodeReading(rd)
	if err != nil {
		return nil, err
	}
	_, err = r.s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(fields) > 0 {
			p.HDel(ctx, key, fields...)
		}
		p.HSet(ctx, key, rd.ID.String(), b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByUser returns all readings newest first.
func (r *ReadingRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Reading, error) {
	m, err := r.s.rdb.HGetAll(ctx, r.s.readingsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	return decodeReadings(userID, m)
}

func decodeReadings(userID uuid.UUID, m map[string]string) ([]model.Reading, error) {
	out := make([]model.Reading, 0, len(m))
	for _, raw := range m {
		var rec readingRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, err
		}
		out = append(out, model.Reading{
			ID:          rec.ID,
			UserID:      userID,
			Value:       rec.Value,
			Date:        rec.Date,
			Time:        rec.Time,
			Timestamp:   time.UnixMilli(rec.Timestamp).UTC(),
			Condition:   rec.Condition,
			MorningDose: rec.MorningDose,
			EveningDose: rec.EveningDose,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
