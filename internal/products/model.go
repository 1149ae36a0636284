package products

// Product representa un registro persistido en la tabla products.
// Es la proyección que devolvemos al cliente (incluye id).
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// ProductInput representa los campos escribibles de un producto.
// Se usa igual para crear y para actualizar: update pisa los cuatro campos.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Quantity    int
}
