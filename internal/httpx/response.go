package httpx

import (
	"encoding/json"
	"net/http"
)

// Mensajes fijos que forman parte del contrato de la API.
const (
	MessageInternalError    = "Internal Server Error"
	MessageNotFound         = "Not Found"
	MessageMethodNotAllowed = "Method Not Allowed"
)

// DetailBody es el cuerpo de error con un mensaje para humanos.
// Ej: {"detail": "Product not found"}.
type DetailBody struct {
	Detail string `json:"detail"`
}

// MessageBody es el cuerpo de confirmación de operaciones sin recurso.
// Ej: {"message": "Product deleted successfully"}.
type MessageBody struct {
	Message string `json:"message"`
}

// FieldError describe un campo inválido.
// Loc indica dónde está el campo: ["body", "price"] o ["path", "product_id"].
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationBody es la respuesta 422 con todos los campos inválidos.
type ValidationBody struct {
	Detail []FieldError `json:"detail"`
}

// JSON escribe una respuesta JSON con headers correctos.
// Nota: en caso de error de encodeo, responde 500 de forma segura.
func JSON(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		// Último recurso: no se pudo serializar JSON.
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Internal Server Error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// OK devuelve una respuesta exitosa con el recurso tal cual.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, data)
}

// Detail devuelve un error con mensaje fijo.
func Detail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, DetailBody{Detail: message})
}

// Message devuelve una confirmación sin recurso.
func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageBody{Message: message})
}

// Unprocessable devuelve 422 con la lista de campos inválidos.
func Unprocessable(w http.ResponseWriter, errs []FieldError) {
	JSON(w, http.StatusUnprocessableEntity, ValidationBody{Detail: errs})
}

// InternalError devuelve 500 sin filtrar detalles internos.
func InternalError(w http.ResponseWriter) {
	Detail(w, http.StatusInternalServerError, MessageInternalError)
}
