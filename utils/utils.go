package utils

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/twmb/murmur3"
)

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}

// HashSet hashes a set of strings independently of their order.
func HashSet(ss []string) uint64 {
	sorted := make([]string, len(ss))
	copy(sorted, ss)
	sort.Strings(sorted)

	hash := murmur3.New64()
	for _, s := range sorted {
		_, err := hash.Write([]byte(s))
		if err != nil {
			panic(err)
		}
		// separator keeps {"AB","C"} and {"A","BC"} apart
		_, _ = hash.Write([]byte{0})
	}
	return hash.Sum64()
}

func ReadList(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	var result []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		result = append(result, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
