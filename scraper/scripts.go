package scraper

import (
	"fmt"
	"strings"

	"github.com/tolisxo/gmaps-leads/locator"
)

// Every script starts with a /*name*/ marker so logs and test fakes can
// tell them apart.

const readyStateScript = `() => { /*ready*/ return document.readyState; }`

func finderList(chain []locator.Locator) string {
	parts := make([]string, 0, len(chain))
	for _, l := range chain {
		parts = append(parts, "(root) => "+l.FindJS("root"))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

const pickJS = `const pick = (finders, root) => {
    for (const f of finders) {
      try {
        const el = f(root);
        if (el) return el;
      } catch (e) {}
    }
    return null;
  };`

func elementRoot(card locator.Locator, index int) string {
	return fmt.Sprintf("((%s)[%d] || null)", card.FindAllJS("document"), index)
}

func lookupScript(root string, loc locator.Locator) string {
	return fmt.Sprintf(`() => { /*lookup*/
  const root = %s;
  if (!root) return {ok: false};
  const el = %s;
  if (!el) return {ok: false};
  const attr = %s;
  const v = attr ? el.getAttribute(attr) : (el.innerText || el.textContent);
  if (v === null || v === undefined) return {ok: false};
  return {ok: true, value: String(v)};
}`, root, loc.FindJS("root"), locator.JSString(loc.Attr))
}

func countScript(loc locator.Locator) string {
	return fmt.Sprintf(`() => { /*count*/ return %s.length; }`, loc.FindAllJS("document"))
}

func clickScript(loc locator.Locator) string {
	return fmt.Sprintf(`() => { /*click*/
  const el = %s;
  if (!el) return false;
  el.click();
  return true;
}`, loc.FindJS("document"))
}

// scrollPulseScript scrolls the first container that can scroll and
// returns its chain index, or -1 after falling back to the window.
func scrollPulseScript(containers []locator.Locator) string {
	return fmt.Sprintf(`() => { /*scroll*/
  const finders = %s;
  for (let i = 0; i < finders.length; i++) {
    let el = null;
    try { el = finders[i](document); } catch (e) {}
    if (el && el.scrollHeight > el.clientHeight) {
      el.scrollTop = el.scrollHeight;
      return i;
    }
  }
  window.scrollBy(0, window.innerHeight || 300);
  return -1;
}`, finderList(containers))
}

type harvestedCard struct {
	Index int    `json:"index"`
	Href  string `json:"href"`
	Name  string `json:"name"`
}

// harvestScript lists every loaded card with its place link and the
// anchor's aria-label, which Maps fills with the business name.
func harvestScript(card locator.Locator, anchors []locator.Locator) string {
	return fmt.Sprintf(`() => { /*harvest*/
  const cards = %s;
  const anchors = %s;
  %s
  return cards.map((card, i) => {
    const a = card.matches && card.matches('a[href]') ? card : pick(anchors, card);
    const name = a ? (a.getAttribute('aria-label') || '').trim() : '';
    return {index: i, href: a ? (a.href || a.getAttribute('href') || '') : '', name: name};
  });
}`, card.FindAllJS("document"), finderList(anchors), pickJS)
}

func openCardScript(card locator.Locator, index int, clickables []locator.Locator) string {
	return fmt.Sprintf(`() => { /*open*/
  const card = %s;
  if (!card) return false;
  const clickables = %s;
  %s
  const el = pick(clickables, card) || card;
  el.click();
  return true;
}`, elementRoot(card, index), finderList(clickables), pickJS)
}
