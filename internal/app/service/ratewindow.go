package service

import (
	"sync"
	"time"
)

// rateWindows: ventana deslizante de timestamps por (grupo, usuario).
// Vive solo en memoria; un restart arranca con ventanas vacías.
type rateWindows struct {
	mu    sync.Mutex
	byKey map[string][]time.Time
}

func newRateWindows() *rateWindows {
	return &rateWindows{byKey: map[string][]time.Time{}}
}

func windowKey(groupID, userID string) string { return groupID + "|" + userID }

// hit agrega el timestamp, poda lo que quedó fuera de la ventana y devuelve
// el tamaño resultante.
func (w *rateWindows) hit(groupID, userID string, now time.Time, window time.Duration) int {
	key := windowKey(groupID, userID)
	cutoff := now.Add(-window)

	w.mu.Lock()
	defer w.mu.Unlock()

	times := append(w.byKey[key], now)
	i := 0
	for i < len(times) && times[i].Before(cutoff) {
		i++
	}
	times = times[i:]
	w.byKey[key] = times
	return len(times)
}

// clear resetea la ventana del usuario; el próximo mensaje arranca de cero
// en vez de re-disparar al instante.
func (w *rateWindows) clear(groupID, userID string) {
	w.mu.Lock()
	delete(w.byKey, windowKey(groupID, userID))
	w.mu.Unlock()
}
