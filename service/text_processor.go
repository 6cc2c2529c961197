package service

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

// TextProcessor 把原始文本整理成适合TTS朗读的句子
type TextProcessor struct {
	urlPattern      *regexp.Regexp
	imagePattern    *regexp.Regexp
	boldPattern     *regexp.Regexp
	italicPattern   *regexp.Regexp
	inlineCodeRegex *regexp.Regexp
	spaceRegex      *regexp.Regexp
}

// NewTextProcessor 创建文本处理器
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{
		urlPattern:      regexp.MustCompile(`^https?://\S+$`),
		imagePattern:    regexp.MustCompile(`^!\[[^\]]*\]\([^)]*\)$`),
		boldPattern:     regexp.MustCompile(`\*\*([^*]+)\*\*`),
		italicPattern:   regexp.MustCompile(`\*([^*]+)\*`),
		inlineCodeRegex: regexp.MustCompile("`([^`]+)`"),
		spaceRegex:      regexp.MustCompile(`\s+`),
	}
}

// ProcessText 清理单条文本：去掉Markdown强调符号和行内代码标记，
// 归一化空白
func (tp *TextProcessor) ProcessText(text string) string {
	text = strings.TrimSpace(text)
	text = tp.boldPattern.ReplaceAllString(text, "$1")
	text = tp.italicPattern.ReplaceAllString(text, "$1")
	text = tp.inlineCodeRegex.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, `\*`, "*")
	text = tp.spaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// IsValidTextForTTS 判断一行文本是否值得朗读。
// 标题标记、表格行、分隔线、代码围栏、纯URL和图片引用都跳过。
func (tp *TextProcessor) IsValidTextForTTS(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}

	switch {
	case strings.HasPrefix(trimmed, "#"):
		return false
	case strings.HasPrefix(trimmed, "|"):
		return false
	case strings.HasPrefix(trimmed, "```"):
		return false
	case strings.HasPrefix(trimmed, "-----"):
		return false
	case strings.HasPrefix(trimmed, "**") && strings.HasSuffix(trimmed, "**"):
		return false
	case tp.urlPattern.MatchString(trimmed):
		return false
	case tp.imagePattern.MatchString(trimmed):
		return false
	}

	return true
}

// ExtractMarkdownText 用blackfriday解析Markdown文档，提取段落文本，
// 跳过代码块、图片和表格，每个段落作为一个待合成句子
func (tp *TextProcessor) ExtractMarkdownText(markdown string) []string {
	md := blackfriday.New(blackfriday.WithExtensions(
		blackfriday.CommonExtensions,
	))
	doc := md.Parse([]byte(markdown))

	var sentences []string
	var buffer strings.Builder

	flush := func() {
		text := tp.ProcessText(buffer.String())
		buffer.Reset()
		if text != "" && tp.IsValidTextForTTS(text) {
			sentences = append(sentences, text)
		}
	}

	doc.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch node.Type {
		case blackfriday.Image, blackfriday.CodeBlock, blackfriday.Table:
			return blackfriday.SkipChildren
		case blackfriday.Text:
			if entering {
				buffer.Write(node.Literal)
			}
		case blackfriday.Code:
			// 行内代码按普通文本朗读
			if entering {
				buffer.Write(node.Literal)
			}
		case blackfriday.Paragraph, blackfriday.Heading, blackfriday.Item:
			if !entering {
				flush()
			}
		}
		return blackfriday.GoToNext
	})
	flush()

	return sentences
}
