package domain

import "github.com/google/uuid"

// Profile contém os campos públicos do usuário entregues à aplicação
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
}
