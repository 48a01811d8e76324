package convert

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	// Loading all built-in functions
	err := AddFunctions(
		NewFunction("lowercase", changeCase(strings.ToLower)),
		NewFunction("uppercase", changeCase(strings.ToUpper)),
		NewFunction("trim", changeCase(strings.TrimSpace)),
		NewFunction("ext", fileExt),
		NewFunction("fileExists", fileExists),
		NewFunction("fileMd5", fileMd5),
	)

	// This should not happen
	if err != nil {
		panic(err)
	}
}

func changeCase(fn func(string) string) Func {
	return func(v interface{}) (interface{}, error) {
		if v == nil {
			return nil, nil
		}

		return fn(Format(v, "")), nil
	}
}

func fileExt(v interface{}) (interface{}, error) {
	ext := filepath.Ext(Format(v, ""))
	if ext != "" && ext[0] == '.' {
		return ext[1:], nil
	}

	return ext, nil
}

func fileExists(v interface{}) (interface{}, error) {
	name := Format(v, "")
	if name == "" {
		return false, nil
	}

	if _, err := os.Stat(name); os.IsNotExist(err) {
		return false, nil
	}

	return true, nil
}

// fileMd5 returns an empty string if the file does not exist
func fileMd5(v interface{}) (interface{}, error) {
	name := Format(v, "")
	if name == "" {
		return "", nil
	}

	if _, err := os.Stat(name); os.IsNotExist(err) {
		return "", nil
	}

	cnt, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	sum := md5.Sum(cnt)
	return hex.EncodeToString(sum[:]), nil
}
