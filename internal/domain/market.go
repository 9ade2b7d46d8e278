package domain

// Market representa un snapshot inmutable de un mercado binario de predicción.
// Se refresca en cada ciclo de escaneo; nunca se persiste.
type Market struct {
	ID        string
	Question  string
	Price     float64 // probabilidad cotizada del lado YES (0–1)
	Volume24h float64 // volumen últimas 24h en USDC, solo como pre-filtro
}
