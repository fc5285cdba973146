package poller

import (
	"time"

	"departure-monitor/config"
)

// Options 폴링 주기 설정
type Options struct {
	ActiveInterval          time.Duration
	InactiveInterval        time.Duration
	NearStationInterval     time.Duration
	UrgencyThresholdMinutes int
	ConserveBattery         bool
}

// OptionsFromConfig 설정에서 폴링 옵션 추출
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ActiveInterval:          cfg.Poller.ActiveInterval,
		InactiveInterval:        cfg.Poller.InactiveInterval,
		NearStationInterval:     cfg.Poller.NearStationInterval,
		UrgencyThresholdMinutes: cfg.Poller.UrgencyThresholdMinutes,
		ConserveBattery:         cfg.Poller.ConserveBattery,
	}
}

// nextInterval 다음 틱까지의 간격 (paused = 타이머 중지)
//
// 화면이 보이면 활성 주기, 숨겨지면 비활성 주기. 숨겨진 상태에서 배터리 절약이 켜져 있으면 중지.
// 현재 정류장 중 도보 시간이 임계값 이하인 곳이 있으면 근접 주기로 단축.
func nextInterval(opts Options, visible bool, stationIDs []string, urgency map[string]int) (interval time.Duration, paused bool) {
	if !visible && opts.ConserveBattery {
		return 0, true
	}

	interval = opts.InactiveInterval
	if visible {
		interval = opts.ActiveInterval
	}

	if isUrgent(opts, stationIDs, urgency) && opts.NearStationInterval < interval {
		interval = opts.NearStationInterval
	}
	return interval, false
}

func isUrgent(opts Options, stationIDs []string, urgency map[string]int) bool {
	for _, id := range stationIDs {
		minutes, ok := urgency[id]
		if ok && minutes >= 0 && minutes <= opts.UrgencyThresholdMinutes {
			return true
		}
	}
	return false
}
