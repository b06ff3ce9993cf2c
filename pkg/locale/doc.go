// Package locale negotiates a UI locale from the Accept-Language header
// and recognises locale-prefixed paths such as /en/dashboard.
//
//	n, err := locale.New([]string{"en", "zh", "ko", "ja"}, "en")
//	n.Negotiate("zh-CN,zh;q=0.9,en;q=0.8") // "zh"
//	n.FromPath("/ko/pricing")              // "ko", true
//	n.Prefix("/pricing", "ja")             // "/ja/pricing"
package locale
