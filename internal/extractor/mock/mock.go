package mock

import (
	"context"
	"crypto/sha256"
	"math"
	"sync"

	"github.com/saturnino-fabrica-de-software/sorria/internal/domain"
	"github.com/saturnino-fabrica-de-software/sorria/internal/extractor"
)

const (
	// smileCycle e smileTicks definem o padrão: sorri 5 de cada 15 chamadas
	smileCycle = 15
	smileTicks = 5
	minFrame   = 16
)

// Extractor implementa extractor.Extractor para testes e desenvolvimento
type Extractor struct {
	mu       sync.Mutex
	calls    int
	identity domain.Descriptor
	script   [][]extractor.Detection
}

// New cria um mock que sempre vê o mesmo rosto centralizado, sorrindo em ciclos
func New(identity string) *Extractor {
	return &Extractor{
		identity: GenerateDescriptor([]byte(identity)),
	}
}

// NewScripted devolve cada lista de detecções na ordem, repetindo a última
func NewScripted(frames ...[]extractor.Detection) *Extractor {
	return &Extractor{script: frames}
}

// Calls retorna quantas vezes Detect foi chamado
func (e *Extractor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Detect simula detecção de faces
func (e *Extractor) Detect(ctx context.Context, frame []byte) ([]extractor.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(frame) < minFrame {
		return nil, extractor.ErrInvalidFrame
	}

	e.mu.Lock()
	n := e.calls
	e.calls++
	e.mu.Unlock()

	if e.script != nil {
		if len(e.script) == 0 {
			return nil, nil
		}
		if n >= len(e.script) {
			n = len(e.script) - 1
		}
		return e.script[n], nil
	}

	smile := 0.05
	if n%smileCycle >= smileCycle-smileTicks {
		smile = 0.9
	}

	return []extractor.Detection{
		{
			Box: extractor.BoundingBox{
				X:      0.3,
				Y:      0.25,
				Width:  0.4,
				Height: 0.5,
			},
			Smile:      extractor.Float64(smile),
			Descriptor: e.identity,
		},
	}, nil
}

// GenerateDescriptor gera descriptor determinístico baseado no hash dos dados
func GenerateDescriptor(seed []byte) domain.Descriptor {
	hash := sha256.Sum256(seed)
	descriptor := make(domain.Descriptor, domain.DescriptorSize)
	hashLen := len(hash)

	for i := 0; i < domain.DescriptorSize; i++ {
		idx := i % hashLen
		descriptor[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range descriptor {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	for i := range descriptor {
		descriptor[i] /= norm
	}

	return descriptor
}

var _ extractor.Extractor = (*Extractor)(nil)
