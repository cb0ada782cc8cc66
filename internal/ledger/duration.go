// Package ledger выводит длительности рабочих сессий из журнала
// входов/выходов. Чистые функции над упорядоченным срезом; длительности
// нигде не хранятся и пересчитываются на каждый запрос.
package ledger

import (
	"time"

	"kontor/internal/models"
)

// Duration считает длительность для записи entries[i], где entries
// упорядочены по времени по убыванию (новые первыми, как отдаёт ListRecent):
//   - "in" со следующей по времени записью → разница отметок;
//   - "in" без следующей (самая свежая) → открытая сессия, now − отметка;
//   - "out" → длительности нет (ok=false).
func Duration(entries []models.TimeEntry, i int, now time.Time) (time.Duration, bool) {
	if i < 0 || i >= len(entries) {
		return 0, false
	}
	cur := entries[i]
	if cur.Type != models.EntryTypeIn {
		return 0, false
	}
	// при сортировке по убыванию следующая по времени запись стоит левее
	if i > 0 {
		return entries[i-1].Timestamp.Sub(cur.Timestamp), true
	}
	return now.Sub(cur.Timestamp), true
}

// Durations — длительности всех записей среза одним проходом;
// nil в позициях без длительности.
func Durations(entries []models.TimeEntry, now time.Time) []*time.Duration {
	out := make([]*time.Duration, len(entries))
	for i := range entries {
		if d, ok := Duration(entries, i, now); ok {
			v := d
			out[i] = &v
		}
	}
	return out
}
