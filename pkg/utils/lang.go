package utils

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

var whatLangOpts = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Rus: true,
		whatlanggo.Cmn: true,
		whatlanggo.Fra: true,
		whatlanggo.Deu: true,
		whatlanggo.Spa: true,
		whatlanggo.Por: true,
		whatlanggo.Jpn: true,
	},
}

// WhatLang 检测文本语言，文本为空时返回空串
func WhatLang(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.DetectWithOptions(text, whatLangOpts)
	return info.Lang.String()
}
