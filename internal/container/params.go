package container

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

// Cost defaults: roughly one second of key derivation under a 16MB memory
// ceiling. The cost auto-scales to the host instead of using fixed
// iteration counts; the chosen parameters travel in the container header so
// decryption always reproduces the same key.
const (
	DefaultTimeBudget = time.Second
	DefaultMaxMemory  = 16 << 20
)

// Bounds on the derivation cost. The lower bound keeps even a mistimed
// calibration from producing a trivially cheap key; the upper bounds keep a
// hostile header from demanding absurd amounts of memory on decrypt.
const (
	minLogN      = 10
	maxLogN      = 22
	minOps       = 1 << 15
	maxKeyMemory = 1 << 30
)

// Params are the scrypt cost parameters recorded in a container header.
type Params struct {
	LogN uint8
	R    uint32
	P    uint32
}

// Validate rejects parameter combinations outside the supported range.
func (p Params) Validate() error {
	if p.LogN == 0 || p.LogN > maxLogN {
		return errors.Errorf("scrypt log2(N)=%d out of range", p.LogN)
	}
	if p.R == 0 || p.R > 64 || p.P == 0 || p.P > 1024 {
		return errors.Errorf("scrypt r=%d p=%d out of range", p.R, p.P)
	}
	if int64(128)*int64(p.R)<<p.LogN > maxKeyMemory {
		return errors.Errorf("scrypt parameters demand more than %d bytes", maxKeyMemory)
	}
	return nil
}

func (p Params) key(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, 1<<p.LogN, int(p.R), int(p.P), keyLen)
	if err != nil {
		return nil, errors.Wrap(err, "derive key")
	}
	return key, nil
}

// Calibrate picks cost parameters that hit the given time budget without
// exceeding the memory ceiling, by timing a small reference derivation and
// extrapolating. scrypt work grows linearly in N*r*p, memory in N*r.
func Calibrate(budget time.Duration, maxMemory int64) Params {
	const benchLogN = 12
	const r = 8

	start := time.Now()
	_, _ = scrypt.Key([]byte("calibration"), make([]byte, 16), 1<<benchLogN, r, 1, keyLen)
	elapsed := time.Since(start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}

	// Salsa20/8 core invocations per second on this host.
	opsPerSec := float64(4*(1<<benchLogN)*r) / elapsed.Seconds()
	opsBudget := opsPerSec * budget.Seconds()
	if opsBudget < minOps {
		opsBudget = minOps
	}

	// Largest N the memory ceiling allows: N*128*r bytes of scratch.
	memLogN := uint8(minLogN)
	for memLogN < maxLogN && int64(128*r)<<(memLogN+1) <= maxMemory {
		memLogN++
	}

	// Grow N toward the ops budget until memory caps it, then spend the
	// remaining budget on p.
	logN := uint8(minLogN)
	for logN < memLogN && float64(int64(4*r)<<(logN+1)) <= opsBudget {
		logN++
	}
	p := uint32(1)
	if logN == memLogN {
		if extra := opsBudget / float64(int64(4*r)<<logN); extra > 1 {
			p = uint32(extra)
			if p > 1024 {
				p = 1024
			}
		}
	}
	return Params{LogN: logN, R: r, P: p}
}

// FastParams returns deliberately weak parameters for tests, where key
// derivation cost is noise.
func FastParams() Params {
	return Params{LogN: minLogN, R: 8, P: 1}
}
