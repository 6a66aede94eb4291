package browser

import (
	"encoding/json"
	"fmt"
)

// Selectors for the Maps interface.
const (
	searchInputSelector  = `input.UGojuc`
	searchButtonSelector = `button.mL3xi`
	searchFormSelector   = `form.NhWQq`
	feedSelector         = `[role="feed"]`
	resultLinkSelector   = `a.hfpxzc`
	titleSelector        = `h1.DUwDvf`
	endMarkerSelector    = `[role="heading"][aria-level="3"]`
	endMarkerText        = "You've reached the end"
)

const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="Reject all"]',
    'button[aria-label="I agree"]',
    'button[aria-label="Alles akzeptieren"]',
    'form[action*="consent"] button'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})()`

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func searchScript(query string) string {
	return fmt.Sprintf(`(function (query) {
  const input = document.querySelector(%s);
  if (!input) {
    return false;
  }
  input.focus();
  input.value = query;
  input.dispatchEvent(new Event('input', { bubbles: true }));
  const button = document.querySelector(%s);
  if (button) {
    button.click();
    return true;
  }
  const form = document.querySelector(%s);
  if (form) {
    form.dispatchEvent(new Event('submit', { bubbles: true, cancelable: true }));
    return true;
  }
  return false;
})(%s)`, jsString(searchInputSelector), jsString(searchButtonSelector), jsString(searchFormSelector), jsString(query))
}

var feedPresentScript = fmt.Sprintf(`!!document.querySelector(%s)`, jsString(feedSelector))

var scrollScript = fmt.Sprintf(`(function () {
  const feed = document.querySelector(%s);
  if (!feed) {
    return false;
  }
  feed.scrollTo(0, feed.scrollHeight);
  return true;
})()`, jsString(feedSelector))

var extentScript = fmt.Sprintf(`(function () {
  const feed = document.querySelector(%s);
  return feed ? feed.scrollHeight : 0;
})()`, jsString(feedSelector))

var endReachedScript = fmt.Sprintf(`(function () {
  const marker = Array.from(document.querySelectorAll(%s))
    .find(el => (el.textContent || '').includes(%s));
  return !!marker;
})()`, jsString(endMarkerSelector), jsString(endMarkerText))

var candidatesScript = fmt.Sprintf(`(function () {
  const links = Array.from(document.querySelectorAll(%s));
  return JSON.stringify(links.map((link, index) => ({
    index: index,
    label: link.getAttribute('aria-label') || '',
    href: link.href || ''
  })));
})()`, jsString(resultLinkSelector))

// selectScript re-queries the list on every call so a re-rendered list never
// leaves it holding a stale node. The permalink wins over the index.
func selectScript(href string, index int) string {
	return fmt.Sprintf(`(function (href, index) {
  const links = Array.from(document.querySelectorAll(%s));
  let link = href ? links.find(l => l.href === href) : null;
  if (!link && index >= 0 && index < links.length) {
    link = links[index];
  }
  if (!link) {
    return false;
  }
  link.scrollIntoView({ block: 'center' });
  link.click();
  return true;
})(%s, %d)`, jsString(resultLinkSelector), jsString(href), index)
}

const dismissOverlayScript = `(function () {
  const active = document.activeElement;
  if (active && active !== document.body && typeof active.blur === 'function') {
    active.blur();
  }
  const opts = { key: 'Escape', code: 'Escape', keyCode: 27, bubbles: true };
  document.dispatchEvent(new KeyboardEvent('keydown', opts));
  document.dispatchEvent(new KeyboardEvent('keyup', opts));
  return true;
})()`

var titleScript = fmt.Sprintf(`(function () {
  const el = document.querySelector(%s);
  return el ? (el.textContent || '').trim() : '';
})()`, jsString(titleSelector))

var snapshotScript = fmt.Sprintf(`(function () {
  const title = document.querySelector(%s);
  const panel = (title && title.closest('[role="main"]')) || document.body;
  return JSON.stringify({
    html: panel.outerHTML,
    text: panel.innerText || '',
    url: location.href
  });
})()`, jsString(titleSelector))
