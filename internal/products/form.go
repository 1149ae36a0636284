package products

import (
	"errors"
	"math"
	"mime"
	"net/http"
	"reflect"
	"sort"
	"strconv"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/Lelo88/inventory-api-golang/internal/httpx"
)

// maxFormMemory limita la parte en memoria de un multipart/form-data.
const maxFormMemory = 1 << 20

// ProductForm es el body form-encoded de POST y PUT.
// Los punteros permiten distinguir "no vino" de "vino en cero" (quantity=0 es válido).
// Un texto vacío cuenta como ausente, igual que un número vacío.
type ProductForm struct {
	Name        *string  `form:"name" validate:"required,min=1"`
	Description *string  `form:"description" validate:"required,min=1"`
	Price       *float64 `form:"price" validate:"required"`
	Quantity    *int     `form:"quantity" validate:"required"`
}

// Input convierte el form ya validado al input de dominio.
func (productForm ProductForm) Input() ProductInput {
	return ProductInput{
		Name:        *productForm.Name,
		Description: *productForm.Description,
		Price:       *productForm.Price,
		Quantity:    *productForm.Quantity,
	}
}

// Orden estable de los errores en la respuesta 422.
var fieldOrder = map[string]int{"name": 0, "description": 1, "price": 2, "quantity": 3}

// Mensaje para errores de tipo por campo.
var typeErrors = map[string]httpx.FieldError{
	"name":        {Msg: "str type expected", Type: "type_error.str"},
	"description": {Msg: "str type expected", Type: "type_error.str"},
	"price":       {Msg: "value is not a valid float", Type: "type_error.float"},
	"quantity":    {Msg: "value is not a valid integer", Type: "type_error.integer"},
}

// FormBinder decodifica y valida ProductForm.
// Decoder y validator cachean metadata de structs y son seguros para uso concurrente,
// por eso se crean una sola vez y se comparten entre requests.
type FormBinder struct {
	decoder  *form.Decoder
	validate *validator.Validate
}

// NewFormBinder crea un binder listo para usar.
func NewFormBinder() *FormBinder {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Reportamos el nombre del campo tal como viaja en el form.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("form")
	})

	return &FormBinder{
		decoder:  form.NewDecoder(),
		validate: validate,
	}
}

// Bind parsea el body (urlencoded o multipart) y devuelve el input validado.
// Si algo falla devuelve la lista de campos inválidos para responder 422.
func (binder *FormBinder) Bind(request *http.Request) (ProductInput, []httpx.FieldError) {
	if err := parseBody(request); err != nil {
		return ProductInput{}, []httpx.FieldError{{
			Loc:  []string{"body"},
			Msg:  "invalid form body",
			Type: "value_error",
		}}
	}

	var productForm ProductForm
	invalid := map[string]httpx.FieldError{}

	if err := binder.decoder.Decode(&productForm, request.PostForm); err != nil {
		var decodeErrors form.DecodeErrors
		if !errors.As(err, &decodeErrors) {
			return ProductInput{}, []httpx.FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
		}
		for field := range decodeErrors {
			invalid[field] = typeError(field)
		}
	}

	// JSON no puede representar NaN ni Inf.
	if productForm.Price != nil && (math.IsNaN(*productForm.Price) || math.IsInf(*productForm.Price, 0)) {
		invalid["price"] = typeError("price")
	}

	if err := binder.validate.Struct(productForm); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return ProductInput{}, []httpx.FieldError{{Loc: []string{"body"}, Msg: err.Error(), Type: "value_error"}}
		}
		for _, fieldError := range validationErrors {
			field := fieldError.Field()
			// Un valor con tipo inválido ya quedó reportado por el decoder.
			if _, seen := invalid[field]; seen {
				continue
			}
			invalid[field] = httpx.FieldError{
				Loc:  []string{"body", field},
				Msg:  "field required",
				Type: "value_error.missing",
			}
		}
	}

	if len(invalid) > 0 {
		return ProductInput{}, sortedFieldErrors(invalid)
	}

	return productForm.Input(), nil
}

// parseProductID valida el {id} del path.
func parseProductID(raw string) (int64, []httpx.FieldError) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, []httpx.FieldError{{
			Loc:  []string{"path", "product_id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}}
	}
	return id, nil
}

func parseBody(request *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(request.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return request.ParseMultipartForm(maxFormMemory)
	}
	return request.ParseForm()
}

func typeError(field string) httpx.FieldError {
	fieldError, ok := typeErrors[field]
	if !ok {
		fieldError = httpx.FieldError{Msg: "invalid value", Type: "value_error"}
	}
	fieldError.Loc = []string{"body", field}
	return fieldError
}

func sortedFieldErrors(invalid map[string]httpx.FieldError) []httpx.FieldError {
	out := make([]httpx.FieldError, 0, len(invalid))
	for _, fieldError := range invalid {
		out = append(out, fieldError)
	}
	sort.Slice(out, func(i, j int) bool {
		return fieldOrder[out[i].Loc[1]] < fieldOrder[out[j].Loc[1]]
	})
	return out
}
