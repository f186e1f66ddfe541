package memutils

import "math"

// Statistics is a census of live buffers: how many there are, how many bytes of kernel memory back
// them, and how many are currently locked for CPU access
type Statistics struct {
	BufferCount int
	BufferBytes int
	LockedCount int
	MappedCount int
}

func (s *Statistics) Clear() {
	s.BufferCount = 0
	s.BufferBytes = 0
	s.LockedCount = 0
	s.MappedCount = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.BufferCount += other.BufferCount
	s.BufferBytes += other.BufferBytes
	s.LockedCount += other.LockedCount
	s.MappedCount += other.MappedCount
}

// AddBuffer records one live buffer of the provided size in bytes
func (s *Statistics) AddBuffer(size int, locked, mapped bool) {
	s.BufferCount++
	s.BufferBytes += size
	if locked {
		s.LockedCount++
	}
	if mapped {
		s.MappedCount++
	}
}

type DetailedStatistics struct {
	Statistics
	BufferSizeMin int
	BufferSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.BufferSizeMin = math.MaxInt
	s.BufferSizeMax = 0
}

func (s *DetailedStatistics) AddBuffer(size int, locked, mapped bool) {
	s.Statistics.AddBuffer(size, locked, mapped)

	if size < s.BufferSizeMin {
		s.BufferSizeMin = size
	}

	if size > s.BufferSizeMax {
		s.BufferSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)

	if other.BufferSizeMin < s.BufferSizeMin {
		s.BufferSizeMin = other.BufferSizeMin
	}

	if other.BufferSizeMax > s.BufferSizeMax {
		s.BufferSizeMax = other.BufferSizeMax
	}
}
