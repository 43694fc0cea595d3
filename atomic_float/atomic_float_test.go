package atomic_float

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAtomicFloat64(t *testing.T) {
	Convey("Given an atomic float", t, func() {
		af := NewAtomicFloat64(1.5)

		Convey("When it is read back", func() {
			So(af.AtomicRead(), ShouldEqual, 1.5)
		})

		Convey("When it is set", func() {
			af.AtomicSet(-0.2)
			So(af.AtomicRead(), ShouldEqual, -0.2)
		})

		Convey("When a single writer adds to it", func() {
			newVal, ok := af.AtomicAdd(0.5)
			So(ok, ShouldBeTrue)
			So(newVal, ShouldEqual, 2.0)
			So(af.AtomicRead(), ShouldEqual, 2.0)
		})
	})

	Convey("When multiple writers increment and decrement the float value concurrently", t, func() {
		af := NewAtomicFloat64(0)
		numOps := 2000
		numWriters := 50

		start := make(chan struct{})
		wg := sync.WaitGroup{}
		wg.Add(numWriters * 2)
		writer := func(addend float64) {
			defer wg.Done()
			<-start
			for i := 0; i < numOps; i++ {
				for _, ok := af.AtomicAdd(addend); !ok; _, ok = af.AtomicAdd(addend) {
				}
			}
		}

		for i := 0; i < numWriters; i++ {
			go writer(1.0)
			go writer(-1.0)
		}

		// Wait for goroutines to begin
		time.Sleep(time.Millisecond * 10)
		close(start)
		wg.Wait()
		So(af.AtomicRead(), ShouldEqual, 0.0)
	})
}
