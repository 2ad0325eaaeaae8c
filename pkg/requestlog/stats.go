package requestlog

// Stats summarises the request log for the admin stats endpoint.
type Stats struct {
	Total               int            `json:"total"`
	ByMethod            map[string]int `json:"byMethod"`
	ByStatus            map[int]int    `json:"byStatus"`
	ByEndpoint          map[string]int `json:"byEndpoint"`
	AverageResponseTime float64        `json:"averageResponseTime"`
}

// Stats computes aggregate counts over the stored entries.
func (s *MemoryStore) Stats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		Total:      len(s.entries),
		ByMethod:   make(map[string]int),
		ByStatus:   make(map[int]int),
		ByEndpoint: make(map[string]int),
	}

	totalTime := 0
	for _, entry := range s.entries {
		stats.ByMethod[entry.Method]++
		stats.ByStatus[entry.ResponseStatus]++
		stats.ByEndpoint[entry.EndpointID]++
		totalTime += entry.ResponseTime
	}
	if stats.Total > 0 {
		stats.AverageResponseTime = float64(totalTime) / float64(stats.Total)
	}
	return stats
}
