// Package goroutine запускает фоновые задачи: паника задачи не роняет процесс,
// а остановка может дождаться всех запущенных задач.
package goroutine

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Launcher отслеживает запущенные им горутины.
type Launcher struct {
	log    logrus.FieldLogger
	wg     sync.WaitGroup
	panics atomic.Int64
}

func NewLauncher(log logrus.FieldLogger) *Launcher {
	return &Launcher{log: log}
}

// Go запускает fn под именем name. Имя попадает в лог при панике.
func (l *Launcher) Go(ctx context.Context, name string, fn func(context.Context)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.Recover(name)
		fn(ctx)
	}()
}

// Recover гасит панику и пишет её со стеком. Вызывается только через defer.
func (l *Launcher) Recover(name string) {
	r := recover()
	if r == nil {
		return
	}
	l.panics.Add(1)
	l.log.WithFields(logrus.Fields{
		"task":  name,
		"panic": r,
		"stack": string(debug.Stack()),
	}).Error("goroutine: перехвачена паника")
}

// Panics - число перехваченных паник.
func (l *Launcher) Panics() int64 {
	return l.panics.Load()
}

// Wait дожидается завершения всех запущенных задач.
func (l *Launcher) Wait() {
	l.wg.Wait()
}
