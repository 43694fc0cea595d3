package episode

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestStats(t *testing.T) {
	Convey("Given fresh stats", t, func() {
		s := NewStats()
		So(s.Snapshot(), ShouldResemble, StatsSnapshot{})

		Convey("Recording ticks keeps the last values and sums the rewards", func() {
			s.record(1, 1, 0.5)
			s.record(2, -0.5, 0.25)
			s.record(3, 0.25, 0.2)
			So(s.Snapshot(), ShouldResemble, StatsSnapshot{
				Tick:         3,
				LastReward:   0.25,
				RunningScore: 0.2,
				TotalReward:  0.75,
			})
		})

		Convey("Concurrent additions to the total are never lost", func() {
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 1000; j++ {
						s.addReward(0.5)
					}
				}()
			}
			wg.Wait()
			So(s.Snapshot().TotalReward, ShouldEqual, 2000.0)
		})
	})
}
