package feed

import (
	"errors"
	"fmt"
)

// TransportError es un fallo duro de red o del endpoint. No se cachea:
// la siguiente llamada reintenta desde cero.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SoftBusyError es la firma blanda "still computing" de analytics:
// el backend aceptó la petición pero el resultado aún no existe.
// Se reintenta internamente; solo aflora tras agotar los reintentos,
// etiquetada para que la UI muestre "computing" y no un error genérico.
type SoftBusyError struct {
	Key string
}

func (e *SoftBusyError) Error() string {
	return fmt.Sprintf("analytics for %s still computing", e.Key)
}

// ValidationError es una respuesta con forma inesperada del endpoint.
type ValidationError struct {
	Op     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid response: %s", e.Op, e.Reason)
}

// IsSoftBusy devuelve true si el error (o su cadena) es la firma blanda.
func IsSoftBusy(err error) bool {
	var busy *SoftBusyError
	return errors.As(err, &busy)
}
