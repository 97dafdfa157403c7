package presence

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var onlineUsersGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "taskflow",
	Name:      "online_users",
})

// OnlineCounter ユーザーごとのアクティブコネクション数カウンター
//
// 同一ユーザーの複数タブ・複数デバイスを区別し、
// 最初の接続/最後の切断のみをオンライン/オフライン遷移として報告します。
type OnlineCounter struct {
	counters     map[uuid.UUID]*counter
	countersLock sync.Mutex
}

// NewOnlineCounter オンラインカウンターを生成します
func NewOnlineCounter() *OnlineCounter {
	return &OnlineCounter{
		counters: map[uuid.UUID]*counter{},
	}
}

// Inc 指定したユーザーのカウンタをインクリメントします
func (oc *OnlineCounter) Inc(userID uuid.UUID) (toOnline bool) {
	oc.countersLock.Lock()
	c, ok := oc.counters[userID]
	if !ok {
		c = &counter{userID: userID}
		oc.counters[userID] = c
	}
	oc.countersLock.Unlock()

	toOnline = c.inc()
	if toOnline {
		onlineUsersGauge.Inc()
	}
	return
}

// Dec 指定したユーザーのカウンタをデクリメントします
func (oc *OnlineCounter) Dec(userID uuid.UUID) (toOffline bool) {
	oc.countersLock.Lock()
	c, ok := oc.counters[userID]
	if !ok {
		oc.countersLock.Unlock()
		return
	}
	oc.countersLock.Unlock()

	toOffline = c.dec()
	if toOffline {
		onlineUsersGauge.Dec()
	}
	return
}

// IsOnline 指定したユーザーがオンラインかどうかを取得します
func (oc *OnlineCounter) IsOnline(userID uuid.UUID) bool {
	oc.countersLock.Lock()
	c, ok := oc.counters[userID]
	oc.countersLock.Unlock()
	if !ok {
		return false
	}
	return c.isOnline()
}

type counter struct {
	sync.RWMutex
	userID      uuid.UUID
	count       int
	lastUpdated time.Time
}

func (s *counter) isOnline() (r bool) {
	s.RLock()
	r = s.count > 0
	s.RUnlock()
	return
}

func (s *counter) inc() (toOnline bool) {
	s.Lock()
	s.count++
	s.lastUpdated = time.Now()
	if s.count == 1 {
		toOnline = true
	}
	s.Unlock()
	return
}

func (s *counter) dec() (toOffline bool) {
	s.Lock()
	if s.count > 0 {
		s.count--
		s.lastUpdated = time.Now()
		if s.count == 0 {
			toOffline = true
		}
	}
	s.Unlock()
	return
}
