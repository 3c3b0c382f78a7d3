// Package license, lisans kodu üretimini sağlar.
//
// Kod formatı: 16 karakter, büyük harf + rakam, 4'lü gruplar halinde
// tire ile ayrılır — ör: AB12-CD34-EF56-GH78.
//
// Rastgelelik kaynağı crypto/rand'dır (math/rand DEĞİL):
// lisans kodları tahmin edilememeli. crypto/rand işletim sisteminin
// CSPRNG'sinden okur, io.ReadFull ile buffer'ın tamamı dolana kadar bekler.
//
// Bu paket uniqueness KONTROL ETMEZ — çakışma tespiti ve retry,
// mevcut tüm lisansları gören record store'un işidir.
package license

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// alphabet, kod karakterleri. 36 karakter — modulo bias ihmal edilebilir
// seviyede değil, bu yüzden rejection sampling kullanılır (aşağıda).
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	codeLength = 16
	groupSize  = 4
)

// Generate, yeni bir lisans kodu üretir.
//
// Rejection sampling: 256 % 36 != 0 olduğu için rastgele byte'ı doğrudan
// mod almak bazı karakterleri daha olası yapar. Bunun yerine 252'den
// (36'nın en büyük 256 altı katı) büyük byte'lar atılıp yeniden çekilir.
func Generate() (string, error) {
	chars := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)

	for len(chars) < codeLength {
		if _, err := io.ReadFull(rand.Reader, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if len(chars) == codeLength {
				break
			}
			if int(b) >= len(alphabet)*(256/len(alphabet)) {
				continue // bias'lı aralık — yeniden çekilecek
			}
			chars = append(chars, alphabet[int(b)%len(alphabet)])
		}
	}

	var sb strings.Builder
	for i := 0; i < codeLength; i += groupSize {
		if i > 0 {
			sb.WriteByte('-')
		}
		sb.Write(chars[i : i+groupSize])
	}
	return sb.String(), nil
}

// Valid, bir string'in lisans kodu formatında olup olmadığını kontrol eder.
// Store, dışarıdan yüklenen (load edilen) kodları doğrulamak için kullanır.
func Valid(code string) bool {
	if len(code) != codeLength+3 { // 16 karakter + 3 tire
		return false
	}
	for i, ch := range code {
		if (i+1)%(groupSize+1) == 0 {
			if ch != '-' {
				return false
			}
			continue
		}
		if !strings.ContainsRune(alphabet, ch) {
			return false
		}
	}
	return true
}
