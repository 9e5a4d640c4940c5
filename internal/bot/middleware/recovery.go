package middleware

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic гасит панику обработчика сообщения: одна кривая
// команда не должна ронять весь цикл приёма обновлений.
// Вызывается через defer в начале обработки каждого обновления.
func RecoverFromPanic() {
	if r := recover(); r != nil {
		log.WithFields(log.Fields{
			"panic": r,
			"stack": string(debug.Stack()),
		}).Error("Паника в обработчике сообщения, работа продолжается")
	}
}
