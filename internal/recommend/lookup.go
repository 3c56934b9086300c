package recommend

import (
	"sort"

	"go.uber.org/zap"
)

// FallbackAdvice показывается, когда для уязвимости нет записи в таблице.
const FallbackAdvice = "No recommendation available for this vulnerability."

// recommendations: неизменяемая таблица "метка уязвимости -> что делать".
// Заполняется один раз при старте процесса и дальше только читается.
var recommendations = map[string]string{
	"Weak Password":       "Change the device password to a strong, unique one.",
	"Outdated Firmware":   "Update the device firmware via the manufacturer's app.",
	"Default Credentials": "Replace the factory username and password before exposing the device.",
	"Open Telnet Port":    "Disable Telnet and use SSH or the vendor app for remote management.",
	"Unencrypted Traffic": "Enable TLS/HTTPS on the device or isolate it on a separate network.",
	"UPnP Enabled":        "Disable UPnP on the router unless a specific device requires it.",
}

// Lookup возвращает рекомендацию для метки. ok == false, если метка неизвестна.
func Lookup(label string) (string, bool) {
	advice, ok := recommendations[label]
	return advice, ok
}

// Labels возвращает все известные метки в отсортированном виде.
func Labels() []string {
	labels := make([]string, 0, len(recommendations))
	for l := range recommendations {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Advisor добавляет к Lookup политику для неизвестных меток: лог + текст-заглушка.
type Advisor struct {
	logger *zap.Logger
}

func NewAdvisor(logger *zap.Logger) *Advisor {
	return &Advisor{logger: logger.Named("recommend")}
}

func (a *Advisor) Advise(label string) string {
	if advice, ok := Lookup(label); ok {
		return advice
	}
	a.logger.Warn("no recommendation for vulnerability",
		zap.String("label", label),
		zap.Strings("known", Labels()))
	return FallbackAdvice
}

// AdviseAll сохраняет порядок меток устройства.
func (a *Advisor) AdviseAll(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, a.Advise(l))
	}
	return out
}
