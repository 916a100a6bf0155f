// Package repository define los contratos de persistencia del núcleo de auth.
//
// Las interfaces son independientes del almacenamiento. Las implementaciones
// viven en internal/store/pg (producción) e internal/store/memory (dev/tests).
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
//   - Ningún método loguea; el logging es responsabilidad del service
package repository
