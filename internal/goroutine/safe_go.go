// Package goroutine запускает фоновые горутины с перехватом panic: упавшая
// горутина не роняет процесс, а оставляет запись в логе.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/ignatzorin/arbitration-backend/internal/logger"
)

// SafeGo запускает fn в отдельной горутине и перехватывает panic.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logPanic(r)
			}
		}()
		fn()
	}()
}

func logPanic(r any) {
	if logger.Log != nil {
		logger.Log.WithField("stack", string(debug.Stack())).
			Errorf("перехвачен panic в горутине: %v", r)
		return
	}
	fmt.Printf("[ERROR] panic в горутине: %v\n%s\n", r, debug.Stack())
}
