// Package docs Nearest Locations API.
//
// Сервис выбора ближайшей локации. Ранжирует каталог локаций по расстоянию
// на автомобиле от введенного ZIP-кода, адреса или позиции устройства
// и держит список карточек и карту в согласованном состоянии.
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
